package wireproto

import "sort"

// Parameters is the generation request payload: the name of the registered
// recipe to invoke plus an open-ended string map of tuning knobs (terrain
// seed, biome name, ore density, whatever a given recipe chooses to read).
type Parameters struct {
	GeneratorName string
	Extra         map[string]string
}

// WriteParameters writes the generator name followed by Extra as a
// length-prefixed sequence of (key, value) string pairs in sorted key
// order, so two Parameters with identical contents always encode
// byte-identically.
func (e *Encoder) WriteParameters(p Parameters) {
	e.WriteString(p.GeneratorName)
	keys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	e.WriteU64(uint64(len(keys)))
	for _, k := range keys {
		e.WriteString(k)
		e.WriteString(p.Extra[k])
	}
}

func (d *Decoder) ReadParameters() (Parameters, error) {
	name, err := d.ReadString()
	if err != nil {
		return Parameters{}, err
	}
	n, err := d.ReadU64()
	if err != nil {
		return Parameters{}, err
	}
	extra := make(map[string]string, n)
	for i := uint64(0); i < n; i++ {
		k, err := d.ReadString()
		if err != nil {
			return Parameters{}, err
		}
		v, err := d.ReadString()
		if err != nil {
			return Parameters{}, err
		}
		extra[k] = v
	}
	return Parameters{GeneratorName: name, Extra: extra}, nil
}
