package collection

import (
	"fmt"

	"github.com/kailas-cloud/veccoll/internal/domain"
)

// Valkey key patterns: veccoll:collection:{name}, veccoll:{name}:idx, veccoll:{name}:{id}

func metaKey(name string) string {
	return fmt.Sprintf("%scollection:%s", domain.KeyPrefix, name)
}

func indexName(name string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, name)
}

func collectionPrefix(name string) string {
	return fmt.Sprintf("%s%s:", domain.KeyPrefix, name)
}

func docKey(name, id string) string {
	return collectionPrefix(name) + id
}
