package navigation

// FallbackPageSize is used for paging when the list has not been measured.
const FallbackPageSize = 10

// PageSize estimates how many items fit in the visible container.
func PageSize(containerHeight, itemHeight int) int {
	if containerHeight <= 0 || itemHeight <= 0 {
		return FallbackPageSize
	}
	return max(1, containerHeight/itemHeight)
}

// ScrollIntoView returns the scroll offset that makes [itemTop, itemBottom)
// visible inside the region [top, bottom), moving as little as possible.
// An item that is already visible leaves top unchanged.
func ScrollIntoView(top, bottom, itemTop, itemBottom int) int {
	switch {
	case itemTop < top:
		return itemTop
	case itemBottom > bottom:
		return top + (itemBottom - bottom)
	default:
		return top
	}
}

// Window is a row-based viewport over a list, as used by terminal renderers.
type Window struct {
	Offset int
	Size   int
}

// Follow scrolls the window minimally so row index is visible.
func (w Window) Follow(index, total int) Window {
	if w.Size <= 0 {
		w.Size = FallbackPageSize
	}
	if index >= 0 {
		w.Offset = ScrollIntoView(w.Offset, w.Offset+w.Size, index, index+1)
	}
	w.Offset = clamp(w.Offset, 0, max(0, total-w.Size))
	return w
}

// Bounds returns the visible half-open row range for a list of total rows.
func (w Window) Bounds(total int) (start, end int) {
	start = clamp(w.Offset, 0, total)
	end = min(total, start+w.Size)
	return start, end
}
