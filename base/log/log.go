// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"net/url"
	"os"
	"strings"

	"github.com/emicklei/go-restful/v3"
	"github.com/go-sql-driver/mysql"
	"github.com/juju/errors"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timeLayout = "2006-01-02 15:04:05.999999"

var logger = zap.Must(zap.NewDevelopment())

// Logger get current logger
func Logger() *zap.Logger {
	return logger
}

// ResponseLogger returns a logger tagged with the request id of the response.
func ResponseLogger(resp *restful.Response) *zap.Logger {
	return logger.With(zap.String("request_id", resp.Header().Get("X-Request-ID")))
}

// CloseLogger silences everything below fatal. Used by tests and benchmarks.
func CloseLogger() {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.FatalLevel)
	logger = zap.Must(cfg.Build())
}

// Options of a logger. Rotation settings apply only if Path is set.
type Options struct {
	Level      string
	Format     string
	Path       string
	MaxSize    int
	MaxAge     int
	MaxBackups int
	Compress   bool
}

func AddFlags(flagSet *pflag.FlagSet) {
	flagSet.String("log-level", "", "log level: debug, info, warn or error (default info, debug with --debug)")
	flagSet.String("log-format", "", "log encoding: json or console (default json, console with --debug)")
	flagSet.String("log-path", "", "path of log file")
	flagSet.Int("log-max-size", 100, "maximum size in megabytes of the log file")
	flagSet.Int("log-max-age", 0, "maximum number of days to retain old log files")
	flagSet.Int("log-max-backups", 0, "maximum number of old log files to retain")
	flagSet.Bool("log-compress", false, "compress rotated log files")
}

// OptionsFromFlags reads logger options from flags registered by AddFlags. Debug mode changes
// the default level and format.
func OptionsFromFlags(flagSet *pflag.FlagSet, debug bool) Options {
	opts := Options{Level: "info", Format: "json", MaxSize: 100}
	if debug {
		opts.Level, opts.Format = "debug", "console"
	}
	if flagSet == nil {
		return opts
	}
	if level, _ := flagSet.GetString("log-level"); level != "" {
		opts.Level = level
	}
	if format, _ := flagSet.GetString("log-format"); format != "" {
		opts.Format = format
	}
	opts.Path, _ = flagSet.GetString("log-path")
	if maxSize, err := flagSet.GetInt("log-max-size"); err == nil {
		opts.MaxSize = maxSize
	}
	opts.MaxAge, _ = flagSet.GetInt("log-max-age")
	opts.MaxBackups, _ = flagSet.GetInt("log-max-backups")
	opts.Compress, _ = flagSet.GetBool("log-compress")
	return opts
}

// NewLogger creates a logger writing to stdout and, if a path is given, to a rotated file.
func NewLogger(opts Options) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
		return nil, errors.NotValidf("log level %q", opts.Level)
	}
	var encoder zapcore.Encoder
	switch opts.Format {
	case "json":
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
		encoder = zapcore.NewJSONEncoder(cfg)
	case "console":
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
		encoder = zapcore.NewConsoleEncoder(cfg)
	default:
		return nil, errors.NotValidf("log format %q", opts.Format)
	}
	writers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if opts.Path != "" {
		writers = append(writers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    opts.MaxSize,
			MaxAge:     opts.MaxAge,
			MaxBackups: opts.MaxBackups,
			Compress:   opts.Compress,
		}))
	}
	return zap.New(zapcore.NewCore(encoder, zap.CombineWriteSyncers(writers...), level)), nil
}

// SetLogger replaces the global logger and routes opentelemetry errors to it.
func SetLogger(flagSet *pflag.FlagSet, debug bool) error {
	l, err := NewLogger(OptionsFromFlags(flagSet, debug))
	if err != nil {
		return errors.Trace(err)
	}
	logger = l
	otel.SetErrorHandler(errorHandler{})
	return nil
}

const mysqlPrefix = "mysql://"

func mask(s string) string {
	return strings.Repeat("x", len(s))
}

// RedactDBURL hides credentials of a store URL before it is logged: user info and a password
// query parameter.
func RedactDBURL(rawURL string) string {
	if strings.HasPrefix(rawURL, mysqlPrefix) {
		parsed, err := mysql.ParseDSN(rawURL[len(mysqlPrefix):])
		if err != nil {
			return rawURL
		}
		parsed.User = mask(parsed.User)
		parsed.Passwd = mask(parsed.Passwd)
		return mysqlPrefix + parsed.FormatDSN()
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	redacted := false
	if parsed.User != nil {
		password, _ := parsed.User.Password()
		parsed.User = url.UserPassword(mask(parsed.User.Username()), mask(password))
		redacted = true
	}
	if query := parsed.Query(); query.Has("password") {
		query.Set("password", mask(query.Get("password")))
		parsed.RawQuery = query.Encode()
		redacted = true
	}
	if !redacted {
		return rawURL
	}
	return parsed.String()
}

type errorHandler struct{}

func (errorHandler) Handle(err error) {
	Logger().Error("opentelemetry failure", zap.Error(err))
}
