package engine

// The splice helpers are the only code that changes sibling order. Each returns the
// updated slice; callers store it back through the ContainerOf pointer.

func position(list []string, id string) int {
	for i, x := range list {
		if x == id {
			return i
		}
	}
	return -1
}

func InsertAfter(list []string, anchor, id string) []string {
	i := position(list, anchor)
	if i < 0 {
		fault("InsertAfter", anchor, "anchor not in list")
	}
	return insertAt(list, i+1, id)
}

func InsertBefore(list []string, anchor, id string) []string {
	i := position(list, anchor)
	if i < 0 {
		fault("InsertBefore", anchor, "anchor not in list")
	}
	return insertAt(list, i, id)
}

func Erase(list []string, id string) []string {
	i := position(list, id)
	if i < 0 {
		fault("Erase", id, "id not in list")
	}
	return append(list[:i], list[i+1:]...)
}

func insertAt(list []string, i int, id string) []string {
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = id
	return list
}
