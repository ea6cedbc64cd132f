package logging

import "fmt"

type Config struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
	Output string `yaml:"output"`
}

func DefaultConfig() Config {
	return Config{
		Format: FormatPretty,
		Level:  LevelInfo,
		Output: "stderr",
	}
}

const (
	FormatPretty = "pretty"
	FormatJSONL  = "jsonl"
	FormatNone   = "none"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Validate format and level
func (c Config) Validate() error {
	switch c.Format {
	case "", FormatPretty, FormatJSONL, FormatNone:
	default:
		return fmt.Errorf("log: format must be 'pretty', 'jsonl' or 'none', got %q", c.Format)
	}
	switch c.Level {
	case "", LevelDebug, LevelInfo, LevelWarn, LevelError:
	default:
		return fmt.Errorf("log: unknown level %q", c.Level)
	}
	return nil
}

func levelPriority(level string) int {
	switch level {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 1 // default to info
	}
}
