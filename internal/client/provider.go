package client

import "github.com/Belphemur/PodnapisiClient/internal/models"

// providerPriority places Podnapisi after the primary provider of a composition layer
const providerPriority = 2

var supportedMediaKinds = []models.MediaKind{models.MediaKindEpisode, models.MediaKindMovie}

func (c *client) Name() string {
	return models.ProviderName
}

func (c *client) Priority() int {
	return providerPriority
}

func (c *client) SupportedMediaKinds() []models.MediaKind {
	kinds := make([]models.MediaKind, len(supportedMediaKinds))
	copy(kinds, supportedMediaKinds)
	return kinds
}
