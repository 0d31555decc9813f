package components

// Visibility controls whether an entity is drawn. Inherited follows the
// parent entity.
type Visibility uint8

const (
	Inherited Visibility = iota
	Hidden
	Visible
)

func (v Visibility) String() string {
	switch v {
	case Inherited:
		return "Inherited"
	case Hidden:
		return "Hidden"
	case Visible:
		return "Visible"
	default:
		return "Visibility(?)"
	}
}
