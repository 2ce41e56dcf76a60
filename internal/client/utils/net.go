// Package utils holds small transport helpers of the CLI.
package utils

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
)

// UploadToPresignedURL PUTs data to a presigned object storage URL. The
// content type is sniffed from the data.
func UploadToPresignedURL(ctx context.Context, hc *http.Client, url string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", http.DetectContentType(data))

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload failed: %s", resp.Status)
	}
	return nil
}
