package media

import (
	"context"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cafe-storefront/internal/config"
)

// CloudinaryUploader stores avatars in a Cloudinary folder
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
	log    *logrus.Logger
}

// NewCloudinaryUploader builds an uploader from CLOUDINARY_URL
func NewCloudinaryUploader(cfg config.MediaConfig, log *logrus.Logger) (*CloudinaryUploader, error) {
	if cfg.CloudinaryURL == "" {
		return nil, errors.New("cloudinary url is required")
	}
	cld, err := cloudinary.NewFromURL(cfg.CloudinaryURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init cloudinary")
	}
	cld.Config.URL.Secure = true

	return &CloudinaryUploader{cld: cld, folder: cfg.Folder, log: log}, nil
}

// Upload implements profile.Uploader. Uploading the same public id again
// replaces the previous image.
func (u *CloudinaryUploader) Upload(ctx context.Context, publicID string, file io.Reader) (string, error) {
	result, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       u.folder,
		Overwrite:    api.Bool(true),
		Invalidate:   api.Bool(true),
		ResourceType: "image",
	})
	if err != nil {
		return "", errors.Wrap(err, "cloudinary upload failed")
	}
	if result.Error.Message != "" {
		return "", errors.Errorf("cloudinary upload rejected: %s", result.Error.Message)
	}

	u.log.WithFields(logrus.Fields{
		"public_id": result.PublicID,
		"bytes":     result.Bytes,
	}).Info("Avatar uploaded")
	return result.SecureURL, nil
}
