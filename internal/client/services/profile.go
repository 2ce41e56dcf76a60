package services

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/client/client"
	"github.com/dmitrijs2005/aquatrack/internal/client/utils"
)

// maxAvatarSize bounds what the CLI is willing to upload.
const maxAvatarSize = 5 << 20

// readFile and uploadObject are seams for tests.
var (
	readFile     = os.ReadFile
	uploadObject = utils.UploadToPresignedURL
)

type ProfileService interface {
	// SetAvatar uploads the image at path and makes it the user's avatar.
	SetAvatar(ctx context.Context, path string) (string, error)
}

type profileService struct {
	client client.Client
	http   *http.Client
}

func NewProfileService(c client.Client, timeout time.Duration) ProfileService {
	return &profileService{client: c, http: &http.Client{Timeout: timeout}}
}

func (p *profileService) SetAvatar(ctx context.Context, path string) (string, error) {
	data, err := readFile(path)
	if err != nil {
		return "", err
	}
	if len(data) == 0 || len(data) > maxAvatarSize {
		return "", fmt.Errorf("%w: avatar must be between 1 byte and %d MiB", ErrInvalidInput, maxAvatarSize>>20)
	}

	key, uploadURL, err := p.client.AvatarUpload(ctx)
	if err != nil {
		return "", err
	}
	if err := uploadObject(ctx, p.http, uploadURL, data); err != nil {
		return "", err
	}
	return p.client.ConfirmAvatar(ctx, key)
}
