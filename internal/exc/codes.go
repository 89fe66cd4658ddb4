package exc

const (
	CodeUnknownFatal                  = "M0000"
	CodeFileNotFound                  = "M0001"
	CodeUnsuportedFileSystemOperation = "M0002"
	CodePermissionDenied              = "M0003"
	CodeUnsupportedFileFormat         = "M0004"
	CodeUnexpectedEOF                 = "M0005"
	CodeInvalidNumber                 = "M0007"
	CodeSyntaxError                   = "M0010"
	CodeMissingRequiredKey            = "M0011"
	CodeInvalidKey                    = "M0012"
	CodeInvalidCharacter              = "M0013"
	CodeGrammarConflict               = "M0014"
)

const (
	CodeEOF = "_EOF_"
)

var (
	// Grammar conflicts are resolved deterministically when the parse table
	// is built so they never abort a parse.
	defaultNonFatal = map[string]bool{
		CodeGrammarConflict: true,
	}
)
