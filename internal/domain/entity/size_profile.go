package entity

// SizeProfile nombra un conjunto fijo y ordenado de etiquetas de talla.
type SizeProfile string

const (
	SizeProfileNone  SizeProfile = ""
	SizeProfileAdult SizeProfile = "adult"
	SizeProfileKids  SizeProfile = "kids"
)

var sizeProfileLabels = map[SizeProfile][]string{
	SizeProfileAdult: {"6", "7", "8", "9"},
	SizeProfileKids:  {"1", "2", "3", "4", "5"},
}

// Labels devuelve las tallas del perfil en su orden canónico (nil si no hay perfil o es desconocido).
func (p SizeProfile) Labels() []string {
	labels, ok := sizeProfileLabels[p]
	if !ok {
		return nil
	}
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

// Valid indica si el perfil es conocido (o vacío).
func (p SizeProfile) Valid() bool {
	if p == SizeProfileNone {
		return true
	}
	_, ok := sizeProfileLabels[p]
	return ok
}

// Position devuelve el índice de la talla dentro del perfil, o -1 si no pertenece.
func (p SizeProfile) Position(size string) int {
	for i, l := range sizeProfileLabels[p] {
		if l == size {
			return i
		}
	}
	return -1
}
