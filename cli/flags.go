package cli

import (
	"github.com/cockroachdb/errors"
	goFlags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
)

// Flags represents command line flags
type Flags struct {
	Version        bool         `short:"v" long:"version"        description:"Print the program version"`
	LogLevel       logrus.Level `short:"l" long:"logLevel"       description:"Logging level. Can be from 0 (least verbose) to 6 (most verbose)"`
	ProgramCfgPath string       `short:"c" long:"programCfgPath" description:"Program config file path to read from. Built-in defaults are used if it does not exist"`
	WriteCfg       bool         `short:"w" long:"writeCfg"       description:"Write default program config to programCfgPath and exit"`
	SrcDir         string       `short:"s" long:"srcDir"         description:"Directory to copy entries from. Overrides config value"`
	DstDir         string       `short:"d" long:"dstDir"         description:"Directory to copy entries to. Overrides config value"`
}

// Parse returns a structure initialized with command line arguments and error if parsing failed
func Parse() (Flags, error) {
	flags := Flags{
		// Set defaults
		LogLevel:       logrus.InfoLevel,
		ProgramCfgPath: "assets_copy.yaml",
	}
	parser := goFlags.NewParser(&flags, goFlags.Options(goFlags.Default))
	args, err := parser.Parse()
	if err == nil && len(args) > 0 {
		err = &goFlags.Error{Type: goFlags.ErrUnknownFlag, Message: "unexpected arguments: " + args[0]}
	}
	return flags, errors.Wrap(err, "Parse CLI arguments")
}

// IsErrOfType returns true if <err> is of type <t>
func IsErrOfType(err error, t goFlags.ErrorType) bool {
	goFlagsErr := &goFlags.Error{}
	if ok := errors.As(err, &goFlagsErr); ok && goFlagsErr.Type == t {
		return true
	}
	return false
}
