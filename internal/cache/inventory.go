package cache

import (
	"context"
	"fmt"
)

const (
	PopularPostsKeyPrefix = "sidebar:popular_posts:%d"
	PopularTagsKeyPrefix  = "sidebar:popular_tags:%d"
)

// SidebarSize is the number of entries in each sidebar block.
const SidebarSize = 5

// Key families used as metric labels.
const (
	FamilyPopularPosts = "popular_posts"
	FamilyPopularTags  = "popular_tags"
)

func PopularPostsKey(n int) string {
	return fmt.Sprintf(PopularPostsKeyPrefix, n)
}

func PopularTagsKey(n int) string {
	return fmt.Sprintf(PopularTagsKeyPrefix, n)
}

// InvalidateSidebars drops cached sidebar blocks for the given sizes.
func InvalidateSidebars(ctx context.Context, sizes ...int) {
	for _, n := range sizes {
		Invalidate(ctx, PopularPostsKey(n))
		Invalidate(ctx, PopularTagsKey(n))
	}
}
