package models

// NoteData is the user-editable payload of a note.
type NoteData struct {
	Title   string `bson:"title" json:"title"`
	Content string `bson:"content" json:"content"`
}

// IsEmpty reports whether both title and content are empty.
func (d NoteData) IsEmpty() bool {
	return d.Title == "" && d.Content == ""
}

// Note is a member of one of a user's note collections, keyed by a
// store-assigned identifier. Active and trashed notes share this shape;
// which collection holds the note decides whether it is deleted.
type Note struct {
	ID       string `bson:"-" json:"id"`
	NoteData `bson:",inline"`
}
