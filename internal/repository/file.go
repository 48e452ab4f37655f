package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mmeshcher/comedor-utm/internal/model"
)

// FileRepository хранит каждую сессию в отдельном JSON-файле каталога dir
// в виде двух строковых записей: token и сериализованного user.
type FileRepository struct {
	dir string
}

type fileEntries struct {
	Token string `json:"token"`
	User  string `json:"user"`
}

// NewFileRepository создаёт каталог dir при необходимости.
func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileRepository{dir: dir}, nil
}

func (r *FileRepository) path(id string) string {
	return filepath.Join(r.dir, filepath.Base(id)+".json")
}

// Load читает сессию id; отсутствующий файл означает пустую сессию.
func (r *FileRepository) Load(_ context.Context, id string) (model.Session, error) {
	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Session{}, nil
		}
		return model.Session{}, fmt.Errorf("read session file: %w", err)
	}

	var entries fileEntries
	if err := json.Unmarshal(data, &entries); err != nil {
		return model.Session{}, fmt.Errorf("decode session file: %w", err)
	}
	return decodeEntries(entries.Token, entries.User)
}

// Save записывает файл через временный файл и переименование,
// так что читатель видит либо старую, либо новую пару значений.
func (r *FileRepository) Save(_ context.Context, id string, s model.Session) error {
	token, user, err := encodeEntries(s)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(fileEntries{Token: token, User: user}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.path(id)); err != nil {
		return fmt.Errorf("rename session file: %w", err)
	}
	return nil
}

// Delete удаляет файл сессии id.
func (r *FileRepository) Delete(_ context.Context, id string) error {
	if err := os.Remove(r.path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
