package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"
)

// DefaultCacheSize is the number of images an ImageCache keeps.
const DefaultCacheSize = 16

// ImageCache holds decoded images keyed by file path or upload ID. It keeps
// at most its size in images, evicting the oldest insertion first.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
	order  []string
	size   int
}

// NewImageCache creates an empty cache holding DefaultCacheSize images.
func NewImageCache() *ImageCache {
	return NewImageCacheSize(DefaultCacheSize)
}

// NewImageCacheSize creates an empty cache holding at most size images. A
// size below 1 is treated as 1.
func NewImageCacheSize(size int) *ImageCache {
	if size < 1 {
		size = 1
	}
	return &ImageCache{
		images: make(map[string]image.Image),
		size:   size,
	}
}

// LoadFile decodes the image at path without caching it. PNG, JPEG and GIF
// are supported.
func LoadFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Load returns the image stored under path, decoding it from disk on the
// first request.
func (c *ImageCache) Load(path string) (image.Image, error) {
	if img, ok := c.get(path); ok {
		return img, nil
	}

	img, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	c.Put(path, img)
	return img, nil
}

// Decode decodes an uploaded image and stores it under key.
func (c *ImageCache) Decode(key string, data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	c.Put(key, img)
	return img, format, nil
}

// Put stores img under key, replacing any previous entry.
func (c *ImageCache) Put(key string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.images[key]; !ok {
		c.order = append(c.order, key)
	}
	c.images[key] = img

	for len(c.order) > c.size {
		delete(c.images, c.order[0])
		c.order = c.order[1:]
	}
}

func (c *ImageCache) get(key string) (image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.images[key]
	return img, ok
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Evict removes one image. Unknown keys are ignored.
func (c *ImageCache) Evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.images[key]; !ok {
		return
	}
	delete(c.images, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear removes every image.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.order = nil
	c.mu.Unlock()
}

// ImageInfo describes a loaded photo.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Lightness is the mean CIE L* of the image, 0 (black) to 1 (white).
	Lightness float64 `json:"lightness"`

	// DarkBackground reports whether Preprocess would invert the image.
	DarkBackground bool `json:"dark_background"`

	FileSizeBytes int64 `json:"file_size_bytes,omitempty"`
}

// LoadImageInfo loads path into the cache and describes it.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	info := Describe(img)
	info.FileSizeBytes = stat.Size()
	return info, nil
}

// Describe reports the size and brightness of img.
func Describe(img image.Image) *ImageInfo {
	bounds := img.Bounds()
	l := MeanLightness(img)
	return &ImageInfo{
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
		Lightness:      l,
		DarkBackground: l < DarkThreshold,
	}
}
