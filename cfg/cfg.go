package cfg

import (
	_ "embed"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"regexp"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
)

//go:embed default.yaml
var defCfgBytes []byte

// EnvPrefix represents prefix of environment variables overriding config values.
//
// Sections and keys are separated by double underscore: ASSETS_COPY_GENERAL__SRC_DIR.
const EnvPrefix = "ASSETS_COPY_"

// Root represents root settings of the program
type Root struct {
	General General `koanf:"general"`
	Copy    Copy    `koanf:"copy"`
}

// General represents general settings of the program
type General struct {
	// SrcDir represents directory to copy entries from
	SrcDir string `koanf:"src_dir"`

	// DstDir represents directory to copy entries to
	DstDir string `koanf:"dst_dir"`
}

// Copy represents copy related settings of the program
type Copy struct {
	// MaxWorkers represents maximum amount of entries copied simultaneously.
	//
	// Zero or negative value means the number of CPUs.
	MaxWorkers int `koanf:"max_workers"`

	// PreserveTimes specifies if modification times of files should be copied
	PreserveTimes bool `koanf:"preserve_times"`

	// Dereference specifies if symbolic links should be followed instead of recreated
	Dereference bool `koanf:"dereference"`

	// Exclude represents the list of regular expressions.
	//
	// If any expression match path of an entry (relative to source directory, slash separated), this entry is not
	// copied.
	//
	// Environment variable value is split on commas, so expressions with a comma can only be set in config file.
	Exclude []regexp.Regexp `koanf:"exclude"`
}

// Workers returns amount of workers to use for copying
func (c Copy) Workers() int {
	if c.MaxWorkers <= 0 {
		return runtime.NumCPU()
	}
	return c.MaxWorkers
}

// BadRegexpError represents error thrown if program config has invalid regular expression
type BadRegexpError struct {
	Reason string
	Expr   string
}

// Error is used to satisfy golang error interface
func (e BadRegexpError) Error() string {
	return fmt.Sprintf("Bad regular expression %q: %v", e.Expr, e.Reason)
}

// EmptyFieldError represents error thrown if required config field is empty
type EmptyFieldError struct {
	Field string
}

// Error is used to satisfy golang error interface
func (e EmptyFieldError) Error() string {
	return fmt.Sprintf("Config field can not be empty: %v", e.Field)
}

// NewDefCfg returns config with default values
func NewDefCfg() Root {
	return Root{
		General: General{
			SrcDir: "assets",
			DstDir: "public",
		},
		Copy: Copy{
			MaxWorkers:    0,
			PreserveTimes: false,
			Dereference:   false,
			Exclude:       nil,
		},
	}
}

// Init returns config instance built from defaults, config file at <cfgFilePath> and environment variables, in that
// order of priority (last wins).
//
// Missing config file is not an error, defaults are used instead.
//
// Can return errors defined in this package: BadRegexpError, EmptyFieldError.
func Init(log *logrus.Logger, cfgFilePath string) (Root, error) {
	log.Debug("Reading program config")

	var root Root
	ko := koanf.New(".")

	if err := ko.Load(rawbytes.Provider(defCfgBytes), yaml.Parser()); err != nil {
		return root, errors.Wrap(err, "Load default config")
	}

	if cfgFilePath != "" {
		if err := ko.Load(file.Provider(cfgFilePath), yaml.Parser()); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return root, errors.Wrap(err, "Load config")
			}
			log.Debugf("Config file %v not found, using defaults", cfgFilePath)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(key string) string {
		key = strings.TrimPrefix(key, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(key), "__", ".")
	})
	if err := ko.Load(envProvider, nil); err != nil {
		return root, errors.Wrap(err, "Load environment variables")
	}

	// Decode loaded config into structure
	decoder := mapstructure.ComposeDecodeHookFunc(
		// Compile regular expressions
		func(from, to reflect.Type, fromData any) (any, error) {
			if to == reflect.TypeOf(regexp.Regexp{}) {
				rxStr := reflect.ValueOf(fromData).String()
				rx, err := regexp.Compile(rxStr)
				if err != nil {
					return nil, BadRegexpError{Reason: err.Error(), Expr: rxStr}
				}
				return rx, nil
			}
			return fromData, nil
		},
		// Default decoders
		mapstructure.StringToSliceHookFunc(","),
	)
	err := ko.UnmarshalWithConf("", &root, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:           decoder,
			ErrorUnused:          true,
			IgnoreUntaggedFields: true,
			Result:               &root,
			WeaklyTypedInput:     true,
			ZeroFields:           true,
		},
	})
	if err != nil {
		return root, errors.Wrap(err, "Decode config")
	}

	if err := root.validate(); err != nil {
		return root, err
	}

	log.Debugf("Program config: %+v", root)
	return root, nil
}

// WriteDefault writes default config to <cfgFilePath>, overwriting existing file
func WriteDefault(cfgFilePath string) error {
	if err := os.WriteFile(cfgFilePath, defCfgBytes, 0644); err != nil {
		return errors.Wrap(err, "Write default config")
	}
	return nil
}

// validate returns error if <r> has empty required fields
func (r Root) validate() error {
	if strings.TrimSpace(r.General.SrcDir) == "" {
		return EmptyFieldError{Field: "general.src_dir"}
	}
	if strings.TrimSpace(r.General.DstDir) == "" {
		return EmptyFieldError{Field: "general.dst_dir"}
	}
	return nil
}
