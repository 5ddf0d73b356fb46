package service

import (
	"context"
	"strings"
	"testing"

	"github.com/OlogyCrew/ologywoodv3/config"
)

func TestNewMinioArchive(t *testing.T) {
	cfg := &config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "test",
		SecretKey: "test",
		Bucket:    "contracts",
		Region:    "us-east-1",
	}

	archive, err := NewMinioArchive(cfg)
	if err != nil {
		t.Fatalf("NewMinioArchive failed: %v", err)
	}
	if archive == nil {
		t.Error("Expected non-nil archive")
	}
}

func TestArchiveObjectName(t *testing.T) {
	got := ArchiveObjectName("c-1")
	if got != "contracts/c-1/contract.pdf" {
		t.Errorf("Expected contracts/c-1/contract.pdf, got %s", got)
	}
}

// With a region configured the presigned URL is computed locally.
func TestMinioArchivePresignedURL(t *testing.T) {
	archive, err := NewMinioArchive(&config.MinioConfig{
		Endpoint:   "minio.example.com",
		AccessKey:  "test",
		SecretKey:  "test",
		Bucket:     "contracts",
		UseSSL:     true,
		Region:     "us-east-1",
		ExpireDays: 7,
	})
	if err != nil {
		t.Fatalf("NewMinioArchive failed: %v", err)
	}

	url, err := archive.PresignedURL(context.Background(), ArchiveObjectName("c-1"))
	if err != nil {
		t.Fatalf("PresignedURL failed: %v", err)
	}
	if !strings.HasPrefix(url, "https://minio.example.com/contracts/contracts/c-1/contract.pdf?") {
		t.Errorf("Unexpected presigned URL %s", url)
	}
	if !strings.Contains(url, "X-Amz-Expires=604800") {
		t.Errorf("Expected 7 day expiry in %s", url)
	}
	if !strings.Contains(url, "X-Amz-Signature=") {
		t.Errorf("Expected signature in %s", url)
	}
}
