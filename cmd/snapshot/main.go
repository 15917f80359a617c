package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"who-dashboard/config"
	"who-dashboard/providers"
	"who-dashboard/providers/whoapi"
	"who-dashboard/services"
	"who-dashboard/storage"
)

const snapshotPrefix = "snapshots/"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Fehler beim Laden der Konfiguration: %v", err)
	}
	logging, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	if !cfg.ArchiveEnabled() {
		logging.Fatal("ARCHIVE_S3_BUCKET ist nicht gesetzt, Snapshot nicht möglich")
	}
	logging.Info("Starte Snapshot-Prozess...", zap.String("backend", cfg.BackendBaseURL))

	ctx := context.Background()
	client := whoapi.NewClient(cfg, logging)

	// 1. Listen und Operationen mit Default-Eingaben abrufen
	data, err := buildSnapshot(ctx, snapshotSources{
		Donors:     client.Donors(),
		Tissues:    client.Tissues(),
		Drugs:      client.Drugs(),
		Operations: client,
	}, cfg.BackendTimeout, logging)
	if err != nil {
		logging.Fatal("Fehler beim Erstellen des Snapshots", zap.Error(err))
	}

	// 2. S3-Client erstellen
	s3Client, err := storage.NewS3Client(ctx, cfg)
	if err != nil {
		logging.Fatal("Fehler beim Erstellen des S3-Clients", zap.Error(err))
	}

	// 3. Snapshot hochladen
	key := fmt.Sprintf("%ssnapshot-%s.xlsx", snapshotPrefix, time.Now().UTC().Format("2006-01-02T15-04-05Z"))
	link, err := storage.UploadFile(ctx, s3Client, cfg.ArchiveS3Bucket, key, storage.XLSXContentType, data, cfg.ArchiveS3URL)
	if err != nil {
		logging.Fatal("Fehler beim Hochladen nach S3", zap.Error(err))
	}
	logging.Info("Snapshot erfolgreich hochgeladen", zap.String("link", link))

	// 4. Alte Snapshots rotieren
	deleted, err := rotateSnapshots(ctx, s3Client, cfg.ArchiveS3Bucket, cfg.SnapshotKeep, logging)
	if err != nil {
		logging.Fatal("Fehler bei der Rotation alter Snapshots", zap.Error(err))
	}
	logging.Info("Snapshot-Prozess erfolgreich abgeschlossen.", zap.Int("deleted", deleted))
}

type snapshotSources struct {
	Donors     providers.DonorsAPI
	Tissues    providers.TissuesAPI
	Drugs      providers.DrugsAPI
	Operations providers.OperationsAPI
}

// buildSnapshot schreibt die drei Listen und die Ergebnisse aller Operationen (Default-Eingaben)
// in eine Arbeitsmappe. Fehlgeschlagene Operationen fehlen im Snapshot, fehlgeschlagene Listen brechen ab.
func buildSnapshot(ctx context.Context, src snapshotSources, timeout time.Duration, logging *zap.Logger) ([]byte, error) {
	wb := services.NewWorkbook()
	defer wb.Close()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	donors, err := services.DonorsFetch(src.Donors)(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch donors: %w", err)
	}
	header, rows := services.DonorRows(donors)
	if err := wb.AddSheet("Donors", header, rows); err != nil {
		return nil, err
	}

	tissues, err := services.TissuesFetch(src.Tissues)(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch tissues: %w", err)
	}
	header, rows = services.TissueRows(tissues)
	if err := wb.AddSheet("Tissues", header, rows); err != nil {
		return nil, err
	}

	drugs, err := services.DrugsFetch(src.Drugs)(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch drugs: %w", err)
	}
	header, rows = services.DrugRows(drugs)
	if err := wb.AddSheet("Drugs", header, rows); err != nil {
		return nil, err
	}

	console := services.NewConsole(ctx, src.Operations, services.ConsoleOptions{
		SessionID: "snapshot",
		Timeout:   timeout,
		Logger:    logging,
	})
	defaults := map[services.OperationID]string{
		services.OP2: services.DefaultMaxDensity,
		services.OP3: services.DefaultCureID,
		services.OP4: services.DefaultDiseaseID,
		services.OP5: services.DefaultQuality,
	}
	for _, id := range services.Operations {
		if err := console.Submit(id, defaults[id]); err != nil {
			return nil, err
		}
	}
	console.Wait()
	snap := console.Snapshot()
	console.Close()

	for _, id := range services.Operations {
		err := services.WriteOperation(wb, snap, id)
		if errors.Is(err, services.ErrNoResult) {
			logging.Warn("Operation ohne Ergebnis, wird im Snapshot ausgelassen", zap.String("operation", string(id)))
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return wb.Bytes()
}

// rotateSnapshots löscht alle Snapshots bis auf die keep neuesten.
func rotateSnapshots(ctx context.Context, client storage.ObjectStore, bucket string, keep int, logging *zap.Logger) (int, error) {
	output, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(snapshotPrefix),
	})
	if err != nil {
		return 0, err
	}

	if len(output.Contents) <= keep {
		logging.Info("Keine Rotation nötig", zap.Int("snapshots", len(output.Contents)), zap.Int("keep", keep))
		return 0, nil
	}

	sort.Slice(output.Contents, func(i, j int) bool {
		return output.Contents[i].LastModified.After(*output.Contents[j].LastModified)
	})

	deleted := 0
	for _, obj := range output.Contents[keep:] {
		key := aws.ToString(obj.Key)
		if !strings.HasPrefix(key, snapshotPrefix) {
			continue
		}
		logging.Info("Lösche alten Snapshot", zap.String("key", key))
		_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    obj.Key,
		})
		if err != nil {
			logging.Error("Fehler beim Löschen", zap.String("key", key), zap.Error(err))
			continue
		}
		deleted++
	}
	return deleted, nil
}
