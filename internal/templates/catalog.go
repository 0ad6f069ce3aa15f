// Package templates manages the message template catalog: active template
// lookup with a Redis read-through cache, edits with revision history and
// first-start seeding.
package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/models"
	"rsvp-workers/internal/store"
)

const (
	cacheKeyPrefix = "template:active:"
	DefaultTTL     = 5 * time.Minute
	DefaultEditor  = "admin"
)

type Catalog struct {
	store  store.TemplateStore
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewCatalog builds a catalog. rdb may be nil, in which case every lookup
// goes to the store.
func NewCatalog(s store.TemplateStore, rdb *redis.Client, ttl time.Duration, log logger.Logger) *Catalog {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Catalog{
		store:  s,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "template-catalog"}),
	}
}

func cacheKey(t models.TemplateType) string {
	return cacheKeyPrefix + string(t)
}

// Active returns the most recently updated active template of type t.
func (c *Catalog) Active(ctx context.Context, t models.TemplateType) (*models.MessageTemplate, error) {
	if c.redis != nil {
		if val, err := c.redis.Get(ctx, cacheKey(t)).Result(); err == nil {
			var tpl models.MessageTemplate
			if err := json.Unmarshal([]byte(val), &tpl); err == nil {
				return &tpl, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			c.logger.Warn("template cache read failed", map[string]interface{}{
				"type":  string(t),
				"error": err.Error(),
			})
		}
	}

	tpl, err := c.store.ActiveTemplate(ctx, t)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewTemplateMissingError(string(t))
		}
		return nil, apperrors.NewStorageError("load active template", err)
	}

	if c.redis != nil {
		data, _ := json.Marshal(tpl)
		if err := c.redis.Set(ctx, cacheKey(t), data, c.ttl).Err(); err != nil {
			c.logger.Warn("template cache write failed", map[string]interface{}{
				"type":  string(t),
				"error": err.Error(),
			})
		}
	}
	return tpl, nil
}

// EventInfo decodes the active eventInfo template. ok is false when there is
// no such template or its body is not valid JSON.
func (c *Catalog) EventInfo(ctx context.Context) (info models.EventInfo, ok bool) {
	tpl, err := c.Active(ctx, models.TemplateEventInfo)
	if err != nil {
		return info, false
	}
	if err := json.Unmarshal([]byte(tpl.Body), &info); err != nil {
		c.logger.Warn("eventInfo template is not valid JSON", map[string]interface{}{
			"templateId": tpl.ID,
			"error":      err.Error(),
		})
		return info, false
	}
	return info, true
}

func (c *Catalog) List(ctx context.Context) ([]models.MessageTemplate, error) {
	list, err := c.store.ListTemplates(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError("list templates", err)
	}
	return list, nil
}

func (c *Catalog) Get(ctx context.Context, id int64) (*models.MessageTemplate, error) {
	tpl, err := c.store.GetTemplate(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("template", fmt.Sprint(id))
		}
		return nil, apperrors.NewStorageError("get template", err)
	}
	return tpl, nil
}

// Update rewrites a template and appends a revision. The editor defaults to "admin".
func (c *Catalog) Update(ctx context.Context, id int64, update store.TemplateUpdate) (*models.MessageTemplate, error) {
	update.Title = strings.TrimSpace(update.Title)
	if strings.TrimSpace(update.Body) == "" {
		return nil, apperrors.NewValidationError("body", "template body is required")
	}
	if update.Title == "" {
		return nil, apperrors.NewValidationError("title", "template title is required")
	}
	if update.Editor = strings.TrimSpace(update.Editor); update.Editor == "" {
		update.Editor = DefaultEditor
	}

	tpl, err := c.store.UpdateTemplate(ctx, id, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("template", fmt.Sprint(id))
		}
		return nil, apperrors.NewStorageError("update template", err)
	}

	c.invalidate(ctx, tpl.Type)
	c.logger.Info("template updated", map[string]interface{}{
		"templateId": id,
		"type":       string(tpl.Type),
		"editor":     update.Editor,
	})
	return tpl, nil
}

func (c *Catalog) SetActive(ctx context.Context, id int64, active bool) (*models.MessageTemplate, error) {
	tpl, err := c.store.SetTemplateActive(ctx, id, active)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("template", fmt.Sprint(id))
		}
		return nil, apperrors.NewStorageError("set template active", err)
	}
	c.invalidate(ctx, tpl.Type)
	return tpl, nil
}

func (c *Catalog) History(ctx context.Context, id int64) ([]models.TemplateRevision, error) {
	if _, err := c.Get(ctx, id); err != nil {
		return nil, err
	}
	revs, err := c.store.TemplateRevisions(ctx, id)
	if err != nil {
		return nil, apperrors.NewStorageError("template revisions", err)
	}
	return revs, nil
}

// SeedDefaults inserts Defaults when the catalog is empty and reports how many
// templates were created.
func (c *Catalog) SeedDefaults(ctx context.Context) (int, error) {
	n, err := c.store.CountTemplates(ctx)
	if err != nil {
		return 0, apperrors.NewStorageError("count templates", err)
	}
	if n > 0 {
		return 0, nil
	}

	created := 0
	for _, tpl := range Defaults() {
		tpl := tpl
		if err := c.store.CreateTemplate(ctx, &tpl); err != nil {
			return created, apperrors.NewStorageError("seed template", err)
		}
		created++
	}
	c.logger.Info("default templates seeded", map[string]interface{}{"count": created})
	return created, nil
}

func (c *Catalog) invalidate(ctx context.Context, t models.TemplateType) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, cacheKey(t)).Err(); err != nil {
		c.logger.Warn("template cache invalidation failed", map[string]interface{}{
			"type":  string(t),
			"error": err.Error(),
		})
	}
}
