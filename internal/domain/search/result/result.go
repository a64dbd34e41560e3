package result

// Result is one formatted search hit. Distance is the cosine similarity of the match.
type Result struct {
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	Paragraphs string  `json:"paragraphs"`
	Distance   float64 `json:"distance"`
}

// FromFields maps raw hit output fields onto a Result. Missing fields stay empty.
func FromFields(fields map[string]string, distance float64) Result {
	return Result{
		Title:      fields["title"],
		Author:     fields["author"],
		Paragraphs: fields["paragraphs"],
		Distance:   distance,
	}
}
