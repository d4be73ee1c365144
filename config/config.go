// Package config loads typed settings from flags, environment variables and
// dotenv files, backed by viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/a-peyrard/minimax/option"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type (
	Options struct {
		prefix   string
		dotEnv   []string
		flags    *pflag.FlagSet
		bindings map[string][]string
	}

	// WithDefault is implemented by settings structs filling their own
	// defaults once loaded. Nested structs are visited too.
	WithDefault interface {
		ApplyDefault()
	}
)

var withDefaultType = reflect.TypeFor[WithDefault]()

// WithEnvPrefix prefixes every environment variable, "APP" binds the field
// LogLevel to APP_LOG_LEVEL.
func WithEnvPrefix(prefix string) option.Option[Options] {
	return func(opts *Options) {
		opts.prefix = prefix
	}
}

// WithDotEnv loads the given dotenv files into the environment before
// reading it. Missing files are ignored, variables already set win.
func WithDotEnv(files ...string) option.Option[Options] {
	return func(opts *Options) {
		opts.dotEnv = append(opts.dotEnv, files...)
	}
}

// WithFlags binds every flag of flags to the key of the same name. Flags set on
// the command line take precedence over the environment, unset flags only
// provide defaults.
func WithFlags(flags *pflag.FlagSet) option.Option[Options] {
	return func(opts *Options) {
		opts.flags = flags
	}
}

// WithEnvBinding reads key from the given variables, first one set wins,
// instead of the prefixed variable derived from the field name.
func WithEnvBinding(key string, envs ...string) option.Option[Options] {
	return func(opts *Options) {
		if opts.bindings == nil {
			opts.bindings = make(map[string][]string)
		}
		opts.bindings[key] = envs
	}
}

// Load builds a T from the configured sources, applies the WithDefault hooks
// and validates the result with its `validate` struct tags.
func Load[T any](opts ...option.Option[Options]) (*T, error) {
	options := option.Build(&Options{}, opts...)

	if err := loadDotEnv(options.dotEnv); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(options.prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var vT T
	typ := reflect.TypeFor[T]()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("unable to load config into %s, a struct is expected", typ)
	}
	bindEnvs(v, options.prefix, typ, options.bindings)

	if options.flags != nil {
		if err := v.BindPFlags(options.flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags:\n\t%w", err)
		}
	}

	if err := v.Unmarshal(&vT); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config:\n\t%w", err)
	}

	walkStruct(reflect.ValueOf(&vT), func(val reflect.Value) {
		createNilStruct(val)
		applyDefault(val)
	})

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&vT); err != nil {
		return nil, fmt.Errorf("invalid config:\n\t%w", err)
	}

	return &vT, nil
}

func loadDotEnv(files []string) error {
	existing := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to read dotenv file %s:\n\t%w", file, err)
		}
		existing = append(existing, file)
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load dotenv files:\n\t%w", err)
	}
	return nil
}

func bindEnvs(v *viper.Viper, envPrefix string, typ reflect.Type, bindings map[string][]string, parts ...string) {
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, ok := field.Tag.Lookup("mapstructure")
		if !ok {
			name = field.Name
		}

		switch {
		case field.Type.Kind() == reflect.Struct:
			bindEnvs(v, envPrefix, field.Type, bindings, append(parts, name)...)
		case field.Type.Kind() == reflect.Pointer && field.Type.Elem().Kind() == reflect.Struct:
			bindEnvs(v, envPrefix, field.Type.Elem(), bindings, append(parts, name)...)
		default:
			key := strings.Join(append(parts, name), ".")
			if envs, found := bindings[key]; found {
				_ = v.BindEnv(append([]string{key}, envs...)...)
				continue
			}
			env := strings.Join(append(parts, toScreamingSnakeCase(name)), "_")
			_ = v.BindEnv(key, mergeWithEnvPrefix(envPrefix, env))
		}
	}
}

func mergeWithEnvPrefix(envPrefix string, in string) string {
	if envPrefix != "" {
		return strings.ToUpper(envPrefix + "_" + in)
	}
	return strings.ToUpper(in)
}

func applyDefault(val reflect.Value) {
	if !val.IsValid() {
		return
	}
	if val.Kind() != reflect.Pointer && val.CanAddr() {
		val = val.Addr()
	}
	if !val.Type().Implements(withDefaultType) {
		return
	}
	if val.Kind() == reflect.Pointer && val.IsNil() {
		return
	}
	val.Interface().(WithDefault).ApplyDefault()
}

func createNilStruct(val reflect.Value) {
	if val.Kind() == reflect.Pointer && val.IsNil() && val.Type().Elem().Kind() == reflect.Struct && val.CanSet() {
		val.Set(reflect.New(val.Type().Elem()))
	}
}
