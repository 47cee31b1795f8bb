// Package pickle converts live models, optimizers, metrics and losses into
// flat, pure-data representations and back.
//
// Models are not natively serializable: they hold backend state and their
// save capability is path-oriented. Packing bridges that gap by saving the
// model into a scoped, uniquely-named staging filesystem, archiving the
// resulting directory tree into an in-memory tar blob, and carrying the
// optimizer's weight arrays alongside. Unpacking reverses the process and
// queues the optimizer weights for deferred restoration: they are applied on
// the optimizer's first Step, once its lazily-allocated slot state exists.
//
// The packed types are plain data (gob-encodable, among others), so a
// generic object serialization channel can move them between processes:
//
//	packed, err := pickle.PackModel(m)
//	// ... gob/network/storage boundary ...
//	m2, err := pickle.UnpackModel(packed, backend)
//
// Optimizers, metrics and losses pack through their serialized configs
// alone; no staging storage is involved for them.
package pickle
