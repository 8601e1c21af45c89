package models

// UploadedFile is one file part of an upscale request. Filename and
// ContentType come from the client and are not trusted.
type UploadedFile struct {
	Filename    string
	ContentType string
	// Size is the size declared by the multipart header, zero when absent.
	Size int64
	Data []byte
}

// EncodedResult is the upscaled image ready to be sent back.
type EncodedResult struct {
	Data        []byte
	ContentType string
	Filename    string
	Format      string
	Width       int
	Height      int
}
