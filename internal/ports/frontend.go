package ports

// Frontend is a long-running way of feeding submissions to the analysis
// service, such as the web UI or the SMTP intake
type Frontend interface {
	// Name identifies the front end in configuration and logs
	Name() string

	// Start starts serving in the background
	Start() error

	// Stop stops serving
	Stop() error
}
