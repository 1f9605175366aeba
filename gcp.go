package feedcrawler

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/compute/metadata"
	"google.golang.org/api/compute/v1"
	"google.golang.org/api/option"
)

// StopInstanceIfRunningFromGCP shuts down the VM hosting the crawler once the
// run is over, so scheduled crawls do not leave instances burning between
// runs. It is a no-op unless STOP_INSTANCE_ON_COMPLETE is set and the process
// is actually on GCE.
func (app *Crawler) StopInstanceIfRunningFromGCP() {
	if !app.Config.GetBool("STOP_INSTANCE_ON_COMPLETE") {
		return
	}
	if !metadata.OnGCE() {
		app.Logger.Info("Not running on GCE, skipping instance stop")
		return
	}

	if err := app.stopInstance(); err != nil {
		app.Logger.Error("Failed to stop instance: %v", err)
		return
	}
	app.Logger.Info("Instance stop requested")
}

func (app *Crawler) stopInstance() error {
	projectID, err := metadata.ProjectID()
	if err != nil {
		return fmt.Errorf("failed to get project ID: %w", err)
	}
	zone, err := metadata.Zone()
	if err != nil {
		return fmt.Errorf("failed to get zone: %w", err)
	}
	instance, err := metadata.InstanceName()
	if err != nil {
		return fmt.Errorf("failed to get instance name: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var opts []option.ClientOption
	if credentials := app.Config.GetString("GCP_CREDENTIALS_PATH"); credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}

	service, err := compute.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create compute service: %w", err)
	}

	if _, err := service.Instances.Stop(projectID, zone, instance).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to stop %s/%s/%s: %w", projectID, zone, instance, err)
	}
	return nil
}
