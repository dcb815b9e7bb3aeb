package engine

// templateStack is the chain of templates currently being resolved,
// outermost first.
//
// Nested templates are resolved by explicit recursion. Each level pushes its
// template name onto a copy of the parent's stack, so sibling branches never
// see each other's entries and a template may legitimately appear twice in a
// pipeline as long as it does not contain itself.
//
// Two guards apply on push:
//   - Cycle: the name is already on the stack (A -> B -> A).
//   - Depth: the stack already holds maxDepth templates.
type templateStack []string

// push returns a new stack with name appended, or a CyclicTemplateError /
// DepthExceededError. maxDepth <= 0 disables the depth guard (the cycle
// guard alone still bounds recursion over a finite store).
func (s templateStack) push(name string, maxDepth int) (templateStack, error) {
	next := make(templateStack, len(s), len(s)+1)
	copy(next, s)
	next = append(next, name)

	if s.contains(name) {
		return nil, &CyclicTemplateError{Chain: next}
	}
	if maxDepth > 0 && len(next) > maxDepth {
		return nil, &DepthExceededError{Chain: next, Limit: maxDepth}
	}
	return next, nil
}

func (s templateStack) contains(name string) bool {
	for _, t := range s {
		if t == name {
			return true
		}
	}
	return false
}

// depth is the nesting level, 1 for a top-level template.
func (s templateStack) depth() int {
	return len(s)
}
