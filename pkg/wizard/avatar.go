package wizard

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formwizard/pkg/upload"
	"github.com/goliatone/go-formwizard/pkg/wizards"
)

// AvatarUpload identifies one upload started with BeginAvatarUpload.
type AvatarUpload struct {
	generation uint64
}

// BeginAvatarUpload records an optimistic preview of the selected file. The
// form's avatar value is not touched until the upload completes.
func (c *Controller) BeginAvatarUpload(preview string) AvatarUpload {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.avatarPreview = preview
	return AvatarUpload{generation: c.generation}
}

// CompleteAvatarUpload finishes the most recent upload. On success url
// becomes the avatar value; on failure the previous value stays and the
// preview reverts.
func (c *Controller) CompleteAvatarUpload(url string, err error) {
	c.mu.Lock()
	token := AvatarUpload{generation: c.generation}
	c.mu.Unlock()
	c.Complete(token, url, err)
}

// Complete finishes the upload identified by token. Completions of uploads
// started before a Reset are ignored.
func (c *Controller) Complete(token AvatarUpload, url string, err error) {
	c.mu.Lock()
	if token.generation != c.generation {
		c.mu.Unlock()
		return
	}
	c.avatarPreview = ""
	if err == nil {
		if _, ok := c.values[wizards.FieldAvatar]; ok {
			c.values[wizards.FieldAvatar] = url
			c.dirty = true
		}
	}
	c.mu.Unlock()

	log := c.logger.WithFields(logrus.Fields{"wizard": c.schema.Name, "field": wizards.FieldAvatar})
	if err != nil {
		log.WithError(err).Warn("avatar upload failed")
		c.emit(Event{Kind: EventAvatarFailed, Wizard: c.schema.Name, Field: wizards.FieldAvatar, Err: err})
		return
	}
	log.Debug("avatar uploaded")
	c.emit(Event{Kind: EventAvatarUploaded, Wizard: c.schema.Name, Field: wizards.FieldAvatar})
}

// AvatarPreview returns the pending preview, or the stored avatar value when
// no upload is pending.
func (c *Controller) AvatarPreview() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.avatarPreview != "" {
		return c.avatarPreview
	}
	current, _ := c.values[wizards.FieldAvatar].(string)
	return current
}

// UploadAvatar stores file through the configured uploader, showing its name
// as the preview while the upload runs.
func (c *Controller) UploadAvatar(ctx context.Context, file upload.File) (string, error) {
	if c.uploader == nil {
		return "", ErrNoUploader
	}
	if _, ok := c.schema.Field(wizards.FieldAvatar); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, wizards.FieldAvatar)
	}

	token := c.BeginAvatarUpload(file.Name)
	url, err := c.uploader.Upload(ctx, file)
	c.Complete(token, url, err)
	if err != nil {
		return "", fmt.Errorf("wizard: avatar upload: %w", err)
	}
	return url, nil
}
