package service

import (
	"mime"
	"os"
	"path"
	"strings"

	log "github.com/sirupsen/logrus"
)

// defaultContentType matches the fallback the store applies when an
// extension is unrecognized.
const defaultContentType = "text/plain"

// contentTypeForKey resolves the MIME type from the key's extension.
func contentTypeForKey(key string) string {
	if contentType := mime.TypeByExtension(strings.ToLower(path.Ext(key))); contentType != "" {
		return contentType
	}
	return defaultContentType
}

func configureLogging() {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "trace":
		log.SetLevel(log.TraceLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	default:
		log.SetLevel(log.ErrorLevel)
	}
}

func init() {
	configureLogging()
}
