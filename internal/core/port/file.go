package port

// TempFiles stores short-lived attachments that are uploaded by path.
type TempFiles interface {
	Save(data []byte, extension string) (string, error)
	Remove(path string)
}
