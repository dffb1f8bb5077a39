package playback

// Handler is one independently-lifecycled behavioral unit attached to the
// coordinator. Each handler owns a narrow responsibility and tracks exactly
// the listeners it registered.
//
// Destroy must be idempotent and callable even when Init failed partway
// through; after Destroy returns, no listener registered by the handler may
// remain attached to the player.
type Handler interface {
	Name() string
	Init() error
	Destroy()
}
