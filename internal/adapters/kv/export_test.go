package kv

// Filename exposes the on-disk location of key for tests.
func (s *FileStore) Filename(key string) string {
	return s.filename(key)
}
