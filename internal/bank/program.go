package bank

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ReadProgram reads the persisted one-byte program index that selects which
// sample set to load. A missing file means program 0.
func ReadProgram(path string) (int, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("bank: %w", err)
	}
	if len(data) < 1 {
		return 0, nil
	}
	return int(data[0]), nil
}

// WriteProgram persists the program index, overwriting the previous value.
func WriteProgram(path string, program int) error {
	if program < 0 || program > 255 {
		return fmt.Errorf("bank: program %d out of range", program)
	}
	if err := os.WriteFile(path, []byte{byte(program)}, 0o644); err != nil {
		return fmt.Errorf("bank: %w", err)
	}
	return nil
}

// ProgramDir resolves the sample directory of a program index under root:
// root/<program>, the layout the loader scripts maintain.
func ProgramDir(root string, program int) string {
	return filepath.Join(root, strconv.Itoa(program))
}
