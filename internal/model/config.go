package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nhle/mailrepl/internal/credential"
)

// Keybinds styles for the line editor.
const (
	KeybindsEmacs = "emacs"
	KeybindsVi    = "vi"
)

// Backend kinds accepted in accounts.<name>.backend and
// accounts.<name>.message.send.backend.
const (
	BackendIMAP     = "imap"
	BackendMaildir  = "maildir"
	BackendNotmuch  = "notmuch"
	BackendSMTP     = "smtp"
	BackendSendmail = "sendmail"
	BackendNone     = "none"
)

// Well-known folder aliases.
const (
	FolderInbox  = "inbox"
	FolderSent   = "sent"
	FolderDrafts = "drafts"
	FolderTrash  = "trash"
)

const (
	defaultSignatureDelim = "-- \n"
	defaultPageSize       = 10
	defaultCommandTimeout = 30 * time.Second
	defaultWatchInterval  = 60 * time.Second
)

var defaultFolderAliases = map[string]string{
	FolderInbox:  "INBOX",
	FolderSent:   "Sent",
	FolderDrafts: "Drafts",
	FolderTrash:  "Trash",
}

// ErrNoAccount is returned when no account can be selected.
var ErrNoAccount = errors.New("no account configured")

// ServerConfig holds the connection settings of an IMAP or SMTP server.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// Encryption is "tls", "start-tls" or "none".
	Encryption string            `mapstructure:"encryption"`
	Login      string            `mapstructure:"login"`
	Passwd     credential.Secret `mapstructure:"passwd"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SendmailConfig holds the command used to hand messages to a local MTA.
type SendmailConfig struct {
	Cmd string `mapstructure:"cmd"`
}

// TableConfig customises the envelope listing.
type TableConfig struct {
	UnseenChar     string `mapstructure:"unseen-char"`
	RepliedChar    string `mapstructure:"replied-char"`
	FlaggedChar    string `mapstructure:"flagged-char"`
	AttachmentChar string `mapstructure:"attachment-char"`
	IDColor        string `mapstructure:"id-color"`
	FlagsColor     string `mapstructure:"flags-color"`
	SubjectColor   string `mapstructure:"subject-color"`
	SenderColor    string `mapstructure:"sender-color"`
	DateColor      string `mapstructure:"date-color"`
}

// EnvelopeListConfig holds listing preferences.
type EnvelopeListConfig struct {
	PageSize int         `mapstructure:"page-size"`
	Table    TableConfig `mapstructure:"table"`
}

// EnvelopeConfig groups envelope preferences.
type EnvelopeConfig struct {
	List EnvelopeListConfig `mapstructure:"list"`
}

// FolderConfig maps well-known folder names to server folder names.
type FolderConfig struct {
	Aliases map[string]string `mapstructure:"aliases"`
}

// MessageSendConfig selects the sending backend.
type MessageSendConfig struct {
	Backend string `mapstructure:"backend"`
}

// MessageConfig groups message preferences.
type MessageConfig struct {
	Send MessageSendConfig `mapstructure:"send"`
}

// AccountConfig is a single entry of the accounts table.
type AccountConfig struct {
	// Name is the key of the account in the accounts table.
	Name string `mapstructure:"-"`

	Default        bool            `mapstructure:"default"`
	Email          string          `mapstructure:"email"`
	DisplayName    string          `mapstructure:"display-name"`
	Signature      string          `mapstructure:"signature"`
	SignatureDelim *string         `mapstructure:"signature-delim"`
	DownloadsDir   string          `mapstructure:"downloads-dir"`
	Backend        string          `mapstructure:"backend"`
	Message        MessageConfig   `mapstructure:"message"`
	Folder         FolderConfig    `mapstructure:"folder"`
	Envelope       EnvelopeConfig  `mapstructure:"envelope"`
	IMAP           *ServerConfig   `mapstructure:"imap"`
	SMTP           *ServerConfig   `mapstructure:"smtp"`
	Sendmail       *SendmailConfig `mapstructure:"sendmail"`
}

// FolderAlias resolves a well-known folder name (case-insensitive) to the
// server folder name. Other names are returned unchanged.
func (a *AccountConfig) FolderAlias(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if folder, ok := a.Folder.Aliases[key]; ok && folder != "" {
		return folder
	}
	if folder, ok := defaultFolderAliases[key]; ok {
		return folder
	}
	return name
}

// From returns the address used in the From header.
func (a *AccountConfig) From() Address {
	return Address{Name: a.DisplayName, Addr: a.Email}
}

// SignatureBlock returns the delimiter followed by the signature, or an
// empty string when no signature is configured.
func (a *AccountConfig) SignatureBlock() string {
	if strings.TrimSpace(a.Signature) == "" {
		return ""
	}
	delim := defaultSignatureDelim
	if a.SignatureDelim != nil {
		delim = *a.SignatureDelim
	}
	return delim + strings.TrimRight(a.Signature, "\n")
}

// PageSize returns the configured envelope page size.
func (a *AccountConfig) PageSize() int {
	if a.Envelope.List.PageSize < 1 {
		return defaultPageSize
	}
	return a.Envelope.List.PageSize
}

// SendBackend returns the sending backend kind, defaulting to whichever
// of smtp or sendmail is configured.
func (a *AccountConfig) SendBackend() string {
	if a.Message.Send.Backend != "" {
		return a.Message.Send.Backend
	}
	switch {
	case a.SMTP != nil:
		return BackendSMTP
	case a.Sendmail != nil:
		return BackendSendmail
	default:
		return BackendNone
	}
}

// MailboxBackend returns the reading backend kind, defaulting to imap
// when an imap section exists.
func (a *AccountConfig) MailboxBackend() string {
	if a.Backend != "" {
		return a.Backend
	}
	if a.IMAP != nil {
		return BackendIMAP
	}
	return BackendNone
}

// REPLConfig holds settings of the interactive loop.
type REPLConfig struct {
	Keybinds       string        `mapstructure:"keybinds"`
	CommandTimeout time.Duration `mapstructure:"command-timeout"`
	WatchInterval  time.Duration `mapstructure:"watch-interval"`
	IDMapperPath   string        `mapstructure:"id-mapper-path"`
	DraftPath      string        `mapstructure:"draft-path"`
}

// Config is the top-level application configuration.
type Config struct {
	DisplayName    string                    `mapstructure:"display-name"`
	Signature      string                    `mapstructure:"signature"`
	SignatureDelim string                    `mapstructure:"signature-delim"`
	DownloadsDir   string                    `mapstructure:"downloads-dir"`
	REPL           REPLConfig                `mapstructure:"repl"`
	Accounts       map[string]*AccountConfig `mapstructure:"accounts"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailrepl/config.toml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.toml")
	}
	return filepath.Join(home, ".config", "mailrepl", "config.toml")
}

func defaultIDMapperPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "id-mapper.sqlite")
	}
	return filepath.Join(home, ".local", "share", "mailrepl", "id-mapper.sqlite")
}

func defaultDraftPath() string {
	return filepath.Join(os.TempDir(), "mailrepl-draft.eml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("signature-delim", defaultSignatureDelim)
	v.SetDefault("repl.keybinds", KeybindsEmacs)
	v.SetDefault("repl.command-timeout", defaultCommandTimeout)
	v.SetDefault("repl.watch-interval", defaultWatchInterval)
	v.SetDefault("repl.id-mapper-path", defaultIDMapperPath())
	v.SetDefault("repl.draft-path", defaultDraftPath())
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		SignatureDelim: defaultSignatureDelim,
		REPL: REPLConfig{
			Keybinds:       KeybindsEmacs,
			CommandTimeout: defaultCommandTimeout,
			WatchInterval:  defaultWatchInterval,
			IDMapperPath:   defaultIDMapperPath(),
			DraftPath:      defaultDraftPath(),
		},
		Accounts: map[string]*AccountConfig{},
	}
}

// LoadConfig reads configuration from the given TOML files using Viper.
// Later files are merged over earlier ones. If the first file does not
// exist, it returns a default configuration.
func LoadConfig(paths ...string) (*Config, error) {
	if len(paths) == 0 {
		paths = []string{DefaultConfigPath()}
	}

	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)

	v.SetConfigFile(expandHome(paths[0]))
	if err := v.ReadInConfig(); err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("reading config %s: %w", paths[0], err)
		}
		if len(paths) == 1 {
			return DefaultConfig(), nil
		}
	}

	for _, path := range paths[1:] {
		v.SetConfigFile(expandHome(path))
		if err := v.MergeInConfig(); err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("merging config %s: %w", path, err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", paths[0], err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", paths[0], err)
	}

	return cfg, nil
}

func isNotFound(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return true
	}
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound)
}

// normalize validates the loaded values and folds the top-level
// defaults into each account.
func (c *Config) normalize() error {
	switch strings.ToLower(c.REPL.Keybinds) {
	case "", KeybindsEmacs:
		c.REPL.Keybinds = KeybindsEmacs
	case KeybindsVi, "vim":
		c.REPL.Keybinds = KeybindsVi
	default:
		return fmt.Errorf("unknown keybinds style %q", c.REPL.Keybinds)
	}
	if c.REPL.CommandTimeout <= 0 {
		c.REPL.CommandTimeout = defaultCommandTimeout
	}
	if c.REPL.WatchInterval < 0 {
		c.REPL.WatchInterval = 0
	}
	c.REPL.IDMapperPath = expandHome(c.REPL.IDMapperPath)
	c.REPL.DraftPath = expandHome(c.REPL.DraftPath)

	if c.Accounts == nil {
		c.Accounts = map[string]*AccountConfig{}
	}
	for name, acc := range c.Accounts {
		if acc == nil {
			acc = &AccountConfig{}
			c.Accounts[name] = acc
		}
		acc.Name = name
		if acc.Email == "" {
			return fmt.Errorf("account %s: missing email", name)
		}
		if acc.DisplayName == "" {
			acc.DisplayName = c.DisplayName
		}
		if acc.Signature == "" {
			acc.Signature = c.Signature
		}
		if acc.SignatureDelim == nil {
			delim := c.SignatureDelim
			acc.SignatureDelim = &delim
		}
		if acc.DownloadsDir == "" {
			acc.DownloadsDir = c.DownloadsDir
		}
		acc.DownloadsDir = expandHome(acc.DownloadsDir)
	}
	return nil
}

// AccountNames returns the configured account names in ascending order.
func (c *Config) AccountNames() []string {
	names := make([]string, 0, len(c.Accounts))
	for name := range c.Accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Account selects an account: the named one, else the one flagged as
// default, else the only one.
func (c *Config) Account(name string) (*AccountConfig, error) {
	if name != "" {
		acc, ok := c.Accounts[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("cannot find account %s", name)
		}
		return acc, nil
	}

	for _, n := range c.AccountNames() {
		if c.Accounts[n].Default {
			return c.Accounts[n], nil
		}
	}

	if len(c.Accounts) == 1 {
		for _, acc := range c.Accounts {
			return acc, nil
		}
	}

	if len(c.Accounts) == 0 {
		return nil, ErrNoAccount
	}
	return nil, fmt.Errorf("cannot find default account among %s", strings.Join(c.AccountNames(), ", "))
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
