package classify

// Classification is the encryption state of a single manifest file.
type Classification string

const (
	// NotASecret means the file carries no data/stringData section.
	NotASecret Classification = "NOT_A_SECRET"

	// AlreadyEncrypted means the file has sops metadata and every secret
	// value is wrapped in the ENC[...] envelope.
	AlreadyEncrypted Classification = "ALREADY_ENCRYPTED"

	// NeedsInitialEncryption means the file has a secret section but has
	// never been through sops.
	NeedsInitialEncryption Classification = "NEEDS_INITIAL_ENCRYPTION"

	// PartiallyEncrypted means the file has sops metadata but at least one
	// non-empty secret value is plaintext. Never auto-fixed.
	PartiallyEncrypted Classification = "PARTIALLY_ENCRYPTED"

	// Malformed means the file could not be parsed as YAML, so its safety
	// cannot be confirmed.
	Malformed Classification = "MALFORMED"
)

// severity orders classifications from harmless to blocking. A multi-document
// file takes the most severe classification of its documents.
var severity = map[Classification]int{
	NotASecret:             0,
	AlreadyEncrypted:       1,
	NeedsInitialEncryption: 2,
	PartiallyEncrypted:     3,
	Malformed:              4,
}

// MoreSevere reports whether a is a worse state than b.
func MoreSevere(a, b Classification) bool {
	return severity[a] > severity[b]
}

// FileReport is the classification outcome for one candidate file.
type FileReport struct {
	Path          string         `json:"path"`
	Class         Classification `json:"classification"`
	PlaintextKeys []string       `json:"plaintextKeys,omitempty"`
	Err           error          `json:"-"`
	Detail        string         `json:"detail,omitempty"`
}

// Blocking reports whether this file alone fails the gate.
func (r FileReport) Blocking() bool {
	return r.Class == PartiallyEncrypted || r.Class == Malformed
}
