package dispatch

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nhle/mailrepl/internal/model"
	"github.com/nhle/mailrepl/internal/theme"
)

const dateLayout = "2006-01-02 15:04"

const (
	defaultUnseenChar     = "*"
	defaultRepliedChar    = "R"
	defaultFlaggedChar    = "!"
	defaultAttachmentChar = "@"
)

// newTable returns a bordered table with the house header style.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorBorder)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeaderStyle
			}
			return theme.TableCellStyle
		})
}

func charOr(configured, fallback string) string {
	if configured == "" {
		return fallback
	}
	return configured
}

// envelopeFlags renders the FLAGS cell: unseen or replied, then flagged,
// then attachment.
func envelopeFlags(cfg model.TableConfig, env model.Envelope) string {
	var s string
	switch {
	case !env.Flags.Has(model.FlagSeen):
		s += charOr(cfg.UnseenChar, defaultUnseenChar)
	case env.Flags.Has(model.FlagAnswered):
		s += charOr(cfg.RepliedChar, defaultRepliedChar)
	default:
		s += " "
	}
	if env.Flags.Has(model.FlagFlagged) {
		s += charOr(cfg.FlaggedChar, defaultFlaggedChar)
	} else {
		s += " "
	}
	if env.HasAttachment {
		s += charOr(cfg.AttachmentChar, defaultAttachmentChar)
	} else {
		s += " "
	}
	return s
}

func envelopeTable(cfg model.TableConfig, envs []model.Envelope, aliases map[string]int) string {
	rows := make([][]string, 0, len(envs))
	for _, env := range envs {
		date := ""
		if !env.Date.IsZero() {
			date = env.Date.Local().Format(dateLayout)
		}
		rows = append(rows, []string{
			strconv.Itoa(aliases[env.ID]),
			envelopeFlags(cfg, env),
			env.Subject,
			env.From.Display(),
			date,
		})
	}

	colors := []lipgloss.TerminalColor{
		theme.ColorOr(cfg.IDColor, theme.EnvelopeIDColor),
		theme.ColorOr(cfg.FlagsColor, theme.EnvelopeFlagsColor),
		theme.ColorOr(cfg.SubjectColor, theme.EnvelopeSubjectColor),
		theme.ColorOr(cfg.SenderColor, theme.EnvelopeSenderColor),
		theme.ColorOr(cfg.DateColor, theme.EnvelopeDateColor),
	}

	t := newTable("ID", "FLAGS", "SUBJECT", "FROM", "DATE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeaderStyle
			}
			style := theme.TableCellStyle.Foreground(colors[col])
			if row >= 0 && row < len(envs) && !envs[row].Flags.Has(model.FlagSeen) {
				style = style.Bold(true)
			}
			return style
		})
	return t.String()
}

func folderTable(folders []model.Folder) string {
	rows := make([][]string, 0, len(folders))
	for _, f := range folders {
		rows = append(rows, []string{f.Name, f.Desc})
	}
	return newTable("NAME", "DESC").Rows(rows...).String()
}
