package ports

// Launcher opens a URL or a local file with the desktop's default handler
type Launcher interface {
	Open(target string) error
}
