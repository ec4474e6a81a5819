package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// MediaFolderPrefix namespaces uploads per owner.
const MediaFolderPrefix = "zenjournal/"

// MediaService uploads entry attachments to Cloudinary.
type MediaService struct {
	cld *cloudinary.Cloudinary
}

func NewMediaService(cloudName, apiKey, apiSecret string) (*MediaService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &MediaService{cld: cld}, nil
}

// MediaFolder is the Cloudinary folder for an owner's attachments.
func MediaFolder(ownerID string) string {
	return MediaFolderPrefix + ownerID
}

// UploadImage streams the file to the owner's folder and returns its secure URL.
func (s *MediaService) UploadImage(ctx context.Context, file io.Reader, ownerID string) (string, error) {
	uploadResult, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       MediaFolder(ownerID),
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if uploadResult.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected upload: %s", uploadResult.Error.Message)
	}
	return uploadResult.SecureURL, nil
}

// UploadFileFromHeader opens a multipart file and uploads it.
func (s *MediaService) UploadFileFromHeader(ctx context.Context, fileHeader *multipart.FileHeader, ownerID string) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return s.UploadImage(ctx, file, ownerID)
}
