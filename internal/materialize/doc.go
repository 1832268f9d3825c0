// Package materialize turns an enumerated repository list into local working
// copies under a target root.
//
// Each repository is cloned when its directory is absent and pulled when it is
// present. A failed clone marks the item Failed while a failed pull only
// produces a warning, because the existing copy remains usable. Items are
// processed sequentially and one failure never stops the remaining items.
package materialize
