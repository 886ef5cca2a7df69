package editor

import "github.com/charmbracelet/huh"

// PreEditChoice is the answer when a draft already exists.
type PreEditChoice int

const (
	PreEditEdit PreEditChoice = iota
	PreEditDiscard
	PreEditQuit
)

func (c PreEditChoice) String() string {
	switch c {
	case PreEditEdit:
		return "Edit it"
	case PreEditDiscard:
		return "Discard it"
	default:
		return "Quit"
	}
}

// PostEditChoice is the answer once the editor exits.
type PostEditChoice int

const (
	PostEditSend PostEditChoice = iota
	PostEditEdit
	PostEditLocalDraft
	PostEditRemoteDraft
	PostEditDiscard
)

func (c PostEditChoice) String() string {
	switch c {
	case PostEditSend:
		return "Send it"
	case PostEditEdit:
		return "Edit it again"
	case PostEditLocalDraft:
		return "Save it as local draft"
	case PostEditRemoteDraft:
		return "Save it as remote draft"
	default:
		return "Discard it"
	}
}

// PreEditForm asks what to do with an existing draft. The answer lands
// in choice.
func PreEditForm(choice *PreEditChoice) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[PreEditChoice]().
				Title("A draft was found, what would you like to do with it?").
				Options(
					huh.NewOption(PreEditEdit.String(), PreEditEdit),
					huh.NewOption(PreEditDiscard.String(), PreEditDiscard),
					huh.NewOption(PreEditQuit.String(), PreEditQuit),
				).
				Value(choice),
		),
	).WithShowHelp(false)
}

// PostEditForm asks what to do with the edited message. The answer lands
// in choice.
func PostEditForm(choice *PostEditChoice) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[PostEditChoice]().
				Title("What would you like to do with this message?").
				Options(
					huh.NewOption(PostEditSend.String(), PostEditSend),
					huh.NewOption(PostEditEdit.String(), PostEditEdit),
					huh.NewOption(PostEditLocalDraft.String(), PostEditLocalDraft),
					huh.NewOption(PostEditRemoteDraft.String(), PostEditRemoteDraft),
					huh.NewOption(PostEditDiscard.String(), PostEditDiscard),
				).
				Value(choice),
		),
	).WithShowHelp(false)
}
