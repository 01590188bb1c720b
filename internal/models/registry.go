package models

import "sync"

// FileURLGenerator resolves a stored object key to a URL clients can
// fetch. The S3 service registers itself here at startup so model hooks
// can sign URLs without importing the services package.
type FileURLGenerator interface {
	GenerateURL(key string) (string, error)
}

var (
	fileURLGeneratorMu sync.RWMutex
	fileURLGenerator   FileURLGenerator
)

func RegisterFileURLGenerator(gen FileURLGenerator) {
	fileURLGeneratorMu.Lock()
	defer fileURLGeneratorMu.Unlock()
	fileURLGenerator = gen
}

func GetFileURLGenerator() FileURLGenerator {
	fileURLGeneratorMu.RLock()
	defer fileURLGeneratorMu.RUnlock()
	return fileURLGenerator
}
