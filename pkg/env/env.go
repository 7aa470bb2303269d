package env

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load loads environment variables from the given env files.
// Variables that are already set in the process environment win.
func Load(paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		log.Printf("No env file loaded from %v: %v", paths, err)
	}
}

// Prompter asks the user for the value of a missing variable.
type Prompter func(name string) (string, error)

// LoadOrCreate loads the env file at path. When the file does not exist, every
// variable in names is requested through prompt and the answers are written to path
// before being loaded, so the next run does not ask again.
func LoadOrCreate(path string, names []string, prompt Prompter) error {
	if _, err := os.Stat(path); err == nil {
		return godotenv.Load(path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat env file %s: %w", path, err)
	}

	values := map[string]string{}
	for _, name := range names {
		value, err := prompt(name)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		values[name] = strings.TrimSpace(value)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("failed to write env file %s: %w", path, err)
	}
	log.Printf("Saved configuration to %s", path)
	return godotenv.Load(path)
}

// LinePrompter returns a Prompter that prints a label to out and reads one line from in.
func LinePrompter(in io.Reader, out io.Writer) Prompter {
	reader := bufio.NewReader(in)
	return func(name string) (string, error) {
		fmt.Fprintf(out, "%s: ", name)
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
}

// RequiredStringVariable returns the value of an environment variable or panics if not set
func RequiredStringVariable(name string) string {
	value := os.Getenv(name)
	if value == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", name))
	}
	return value
}

// StringVariable returns the value of an environment variable or a default value
func StringVariable(name, defaultValue string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return defaultValue
}

// IntVariable returns the value of an environment variable as int, or defaultValue when unset.
// A value that is set but not an integer panics, like the required lookups.
func IntVariable(name string, defaultValue int) int {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		panic(fmt.Sprintf("environment variable %s must be an integer, got: %s", name, value))
	}
	return intValue
}

// FloatVariable returns the value of an environment variable as float64, or defaultValue when unset.
func FloatVariable(name string, defaultValue float64) float64 {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		panic(fmt.Sprintf("environment variable %s must be a number, got: %s", name, value))
	}
	return floatValue
}

// BoolVariable returns the value of an environment variable as bool, or defaultValue when unset.
func BoolVariable(name string, defaultValue bool) bool {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		panic(fmt.Sprintf("environment variable %s must be a boolean, got: %s", name, value))
	}
	return boolValue
}

// ListVariable splits a comma separated environment variable. Empty items are dropped.
// E.g., "a.ttf, b.ttf" -> ["a.ttf", "b.ttf"]
func ListVariable(name string, defaultValue []string) []string {
	value := os.Getenv(name)
	if value == "" {
		return defaultValue
	}
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
