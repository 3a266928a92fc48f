package query

import "strconv"

// PrefixAllocator assigns each alias a sequential column prefix t0_, t1_, ...
// the first time it is seen. Mappings are never removed.
type PrefixAllocator struct {
	byAlias  map[string]string
	byPrefix map[string]string
}

// NewPrefixAllocator returns an empty allocator.
func NewPrefixAllocator() *PrefixAllocator {
	return &PrefixAllocator{
		byAlias:  make(map[string]string),
		byPrefix: make(map[string]string),
	}
}

// PrefixFor returns the prefix of alias, allocating the next one if needed.
func (p *PrefixAllocator) PrefixFor(alias string) string {
	if prefix, ok := p.byAlias[alias]; ok {
		return prefix
	}
	prefix := "t" + strconv.Itoa(len(p.byAlias)) + "_"
	p.byAlias[alias] = prefix
	p.byPrefix[prefix] = alias
	return prefix
}

// AliasFor returns the alias a prefix was allocated to.
func (p *PrefixAllocator) AliasFor(prefix string) (string, bool) {
	alias, ok := p.byPrefix[prefix]
	return alias, ok
}

// Len returns the number of allocated prefixes.
func (p *PrefixAllocator) Len() int {
	return len(p.byAlias)
}
