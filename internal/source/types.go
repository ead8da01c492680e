package source

// FileID identifies the script a tree was parsed from. The engine never reads
// files itself; the id is assigned by whoever built the tree.
type FileID uint32 // просто ID источника

// NoFileID marks synthetic trees (tests, scenarios built in code).
const NoFileID FileID = 0
