// Пакет filestore — операции с файлами документов на диске.
// Обеспечивает streaming-запись с подсчётом SHA-256 на лету,
// чтение, удаление и обход директории загрузок.
package filestore

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// tmpSuffix — суффикс временного файла на время записи.
const tmpSuffix = ".tmp"

// ErrNotFound — файл отсутствует на диске.
var ErrNotFound = errors.New("файл не найден на диске")

// FileStore — управление файлами в директории загрузок.
type FileStore struct {
	// dataDir — директория загрузок (FS_UPLOAD_DIR)
	dataDir string
}

// SaveResult — результат сохранения файла на диск.
type SaveResult struct {
	// StorageName — имя файла относительно dataDir
	StorageName string
	// FullPath — абсолютный путь файла на диске
	FullPath string
	// Size — количество записанных байт
	Size int64
	// Checksum — SHA-256 хэш содержимого
	Checksum string
}

// New создаёт FileStore. Директория создаётся, если её нет.
func New(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию загрузок %s: %w", dataDir, err)
	}

	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("не удалось определить абсолютный путь %s: %w", dataDir, err)
	}

	return &FileStore{dataDir: abs}, nil
}

// Save записывает данные из reader в файл storageName с подсчётом SHA-256 на лету.
//
// Паттерн: temp файл → запись + SHA-256 → fsync → atomic rename.
// При любой ошибке temp файл удаляется, итоговый файл не появляется.
func (fs *FileStore) Save(storageName string, reader io.Reader) (*SaveResult, error) {
	if err := validateName(storageName); err != nil {
		return nil, err
	}

	fullPath := filepath.Join(fs.dataDir, storageName)
	tmpPath := fullPath + tmpSuffix

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	hasher := sha256.New()
	size, err := io.Copy(f, io.TeeReader(reader, hasher))
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка записи данных: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return &SaveResult{
		StorageName: storageName,
		FullPath:    fullPath,
		Size:        size,
		Checksum:    hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Open открывает файл для чтения. Вызывающий код обязан закрыть файл.
// Если файла нет, возвращаемая ошибка оборачивает ErrNotFound.
func (fs *FileStore) Open(storageName string) (*os.File, error) {
	if err := validateName(storageName); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(fs.dataDir, storageName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, storageName)
		}
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", storageName, err)
	}

	return f, nil
}

// Delete удаляет файл с диска. Отсутствующий файл не считается ошибкой.
func (fs *FileStore) Delete(storageName string) error {
	if err := validateName(storageName); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(fs.dataDir, storageName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка удаления файла %s: %w", storageName, err)
	}
	return nil
}

// FileSize возвращает размер файла на диске.
func (fs *FileStore) FileSize(storageName string) (int64, error) {
	info, err := os.Stat(filepath.Join(fs.dataDir, storageName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, storageName)
		}
		return 0, fmt.Errorf("ошибка получения информации о файле %s: %w", storageName, err)
	}
	return info.Size(), nil
}

// ComputeChecksum вычисляет SHA-256 хэш существующего файла.
// Используется при reconciliation для проверки целостности.
func (fs *FileStore) ComputeChecksum(storageName string) (string, error) {
	f, err := os.Open(filepath.Join(fs.dataDir, storageName))
	if err != nil {
		return "", fmt.Errorf("ошибка открытия файла %s: %w", storageName, err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("ошибка вычисления checksum %s: %w", storageName, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// ListNames возвращает отсортированные имена файлов данных в директории загрузок.
// Служебные файлы (начинающиеся с точки), временные *.tmp и поддиректории пропускаются.
func (fs *FileStore) ListNames() ([]string, error) {
	entries, err := os.ReadDir(fs.dataDir)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения директории %s: %w", fs.dataDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, tmpSuffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

// validateName запрещает пути, выходящие за пределы директории загрузок.
func validateName(storageName string) error {
	if storageName == "" || storageName != filepath.Base(storageName) ||
		storageName == "." || storageName == ".." {
		return fmt.Errorf("недопустимое имя файла: %q", storageName)
	}
	return nil
}
