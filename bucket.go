package feedcrawler

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"
	"google.golang.org/api/option"
)

// UploadFeeds pushes the generated feed files to the GCS_BUCKET bucket under
// <site>/<run id>/. Skipped silently when no bucket is configured, so local
// runs end at the feeds directory.
func (app *Crawler) UploadFeeds() error {
	bucketName := app.Config.GetString("GCS_BUCKET")
	if bucketName == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var opts []option.ClientOption
	if credentials := app.Config.GetString("GCP_CREDENTIALS_PATH"); credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			app.Logger.Error("Failed to close storage client: %v", err)
		}
	}()

	feedDir := app.Config.GetString("FEED_DIR")
	for _, name := range []string{GoogleFeedCSV, GoogleFeedXML, MetaFeedXML} {
		source := filepath.Join(feedDir, name)
		destination := fmt.Sprintf("%s/%s/%s", app.Name, app.RunId, name)
		if err := app.uploadToBucket(ctx, client, bucketName, source, destination); err != nil {
			return err
		}
	}
	return nil
}

func (app *Crawler) uploadToBucket(ctx context.Context, client *storage.Client, bucketName, sourceFileName, destinationFileName string) error {
	startTime := time.Now()

	file, err := os.Open(sourceFileName)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", sourceFileName, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			app.Logger.Error("Failed to close file %s: %v", sourceFileName, err)
		}
	}()

	writer := client.Bucket(bucketName).Object(destinationFileName).NewWriter(ctx)

	contentType, err := detectContentType(sourceFileName)
	if err != nil {
		app.Logger.Error("Failed to detect content type for file %s: %v", sourceFileName, err)
		writer.ContentType = "application/octet-stream"
	} else {
		writer.ContentType = contentType
	}

	if _, err := io.Copy(writer, file); err != nil {
		writer.Close()
		return fmt.Errorf("failed to copy %s to bucket %s: %w", sourceFileName, bucketName, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer for %s: %w", destinationFileName, err)
	}

	app.Logger.Info("File %s uploaded to bucket in %s", sourceFileName, time.Since(startTime))
	return nil
}

func detectContentType(filePath string) (string, error) {
	mime, err := mimetype.DetectFile(filePath)
	if err != nil {
		return "", err
	}
	return mime.String(), nil
}
