package feedcrawler

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/compute/metadata"
	"cloud.google.com/go/logging"
)

// logger is the logging surface handlers see on Crawler.Logger.
type logger interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	Fatal(format string, args ...interface{})
	Summary(format string, args ...interface{})
	Html(html, url, message string)
}

// defaultLogger writes to a per-site dated log file and the terminal, plus
// Cloud Logging when LOG_TO_CLOUD is on.
type defaultLogger struct {
	app    *Crawler
	logger *log.Logger
	cloud  *logging.Client
}

func newDefaultLogger(app *Crawler, siteName string) *defaultLogger {
	currentDate := time.Now().Format("2006-01-02")
	directory := filepath.Join(app.Config.GetString("LOG_DIR"), siteName)
	if err := os.MkdirAll(directory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	logFilePath := filepath.Join(directory, currentDate+"_application.log")
	file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}

	writers := []io.Writer{file, os.Stdout}
	l := &defaultLogger{app: app}

	if app.Config.GetBool("LOG_TO_CLOUD") {
		if client, cloudWriter := newCloudLogWriter(app, siteName); client != nil {
			l.cloud = client
			writers = append(writers, cloudWriter)
		}
	}

	l.logger = log.New(io.MultiWriter(writers...), "⏱️ ", log.LstdFlags)
	return l
}

// newCloudLogWriter connects a Cloud Logging stream. Failures only cost the
// extra sink, never the run.
func newCloudLogWriter(app *Crawler, siteName string) (*logging.Client, io.Writer) {
	projectID := app.Config.GetString("GCP_PROJECT_ID")
	if projectID == "" {
		if id, err := metadata.ProjectID(); err == nil {
			projectID = id
		}
	}
	if projectID == "" {
		log.Printf("cloud logging disabled: no project id")
		return nil, nil
	}
	client, err := logging.NewClient(context.Background(), projectID)
	if err != nil {
		log.Printf("cloud logging disabled: %v", err)
		return nil, nil
	}
	return client, client.Logger("feedcrawler-" + siteName).StandardLogger(logging.Info).Writer()
}

func (l *defaultLogger) close() {
	if l.cloud != nil {
		_ = l.cloud.Close()
	}
}

func (l *defaultLogger) Info(format string, args ...interface{}) {
	l.logger.Printf("📢 INFO: "+format, args...)
}

func (l *defaultLogger) Warn(format string, args ...interface{}) {
	l.logger.Printf("⚠️ WARN: "+format, args...)
}

func (l *defaultLogger) Error(format string, args ...interface{}) {
	l.logger.Printf("🛑 ERROR: "+format, args...)
}

func (l *defaultLogger) Fatal(format string, args ...interface{}) {
	l.logger.Fatalf("🚨 FATAL: "+format, args...)
}

func (l *defaultLogger) Summary(format string, args ...interface{}) {
	l.logger.Printf("✅ SUMMARY: "+format, args...)
}

// Html logs a page-level problem and stores the offending page's HTML beside
// the run's debug data when STORE_HTML is on.
func (l *defaultLogger) Html(html, url, message string) {
	l.Error("%s [%s]", message, url)
	if path := l.app.SaveHtml(html, url); path != "" {
		l.logger.Printf("⚛️ HTML: snapshot saved to %s", path)
	}
}
