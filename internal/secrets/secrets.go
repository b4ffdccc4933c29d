// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves API keys from the process environment, dotenv
// files and a directory of plain-text key files, in that order.
//
// In the key directory each file is one secret: the filename is the key name
// in lowercase kebab case (together-api-key) and the trimmed contents are the
// value. Lookup names use the environment spelling (TOGETHER_API_KEY).
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissing is returned by Require when no source holds the key.
var ErrMissing = errors.New("secret not found")

// Store holds secrets loaded at startup.
type Store struct {
	lookupEnv func(string) (string, bool)
	dotenv    map[string]string
	files     map[string]string
}

// Load reads the key directory dir and the given dotenv files. A missing
// directory or dotenv file is not an error. Unreadable key files produce a
// warning on stderr but do not abort.
func Load(dir string, dotenvFiles ...string) (*Store, error) {
	files, err := loadDir(dir)
	if err != nil {
		return nil, err
	}

	dotenv := map[string]string{}
	for _, path := range dotenvFiles {
		vals, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading dotenv file %s: %w", path, err)
		}
		for k, v := range vals {
			if _, ok := dotenv[k]; !ok {
				dotenv[k] = v
			}
		}
	}

	return &Store{
		lookupEnv: os.LookupEnv,
		dotenv:    dotenv,
		files:     files,
	}, nil
}

func loadDir(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", entry.Name(), err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[entry.Name()] = value
		}
	}
	return secrets, nil
}

// FileName maps an environment-style key to its file name in the key
// directory: TOGETHER_API_KEY -> together-api-key.
func FileName(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "_", "-")
}

// Lookup returns the first non-empty value for key from the environment,
// the dotenv files, then the key directory.
func (s *Store) Lookup(key string) (string, bool) {
	if v, ok := s.lookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), true
	}
	if v := strings.TrimSpace(s.dotenv[key]); v != "" {
		return v, true
	}
	if v, ok := s.files[FileName(key)]; ok {
		return v, true
	}
	return "", false
}

// Require is Lookup that fails with ErrMissing.
func (s *Store) Require(key string) (string, error) {
	v, ok := s.Lookup(key)
	if !ok {
		return "", fmt.Errorf("%s: %w (set it in the environment, .env, or .secrets/%s)", key, ErrMissing, FileName(key))
	}
	return v, nil
}

// Sources lists which keys were loaded from dotenv files and the key
// directory, for startup diagnostics. Values are never included.
func (s *Store) Sources() []string {
	var out []string
	for k := range s.dotenv {
		out = append(out, ".env:"+k)
	}
	for k := range s.files {
		out = append(out, "file:"+k)
	}
	sort.Strings(out)
	return out
}
