package entity

// Document はレンダリング済みの事業計画書ファイルです。
type Document struct {
	FileName    string
	ContentType string
	Body        []byte
}
