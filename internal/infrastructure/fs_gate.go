package infrastructure

import "os"

// FSGate answers existence questions from the local filesystem. Presence of
// any file at the path counts; size and content are not checked.
type FSGate struct{}

// Exists reports whether something is present at path
func (FSGate) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
