/*
Package hypostasis assigns fresh, content-derived HashIds to map objects that
are not part of the base game, and rewrites the links that point at them.

Mod tools often copy objects and keep their HashId, or invent ids that clash
with objects in other map units. Given a reference set of ids known to be
valid, every other object gets an id computed from its own content, and every
LinksToObj record that referred to the old id is patched to the new one.

We implement:

1. ReferenceSet, the read-only set of valid ids (comma-separated decimal).

2. Remapper, which rewrites one parsed BYML document and returns a RemapTable.

3. Batch, which runs the Yaz0 → BYML → remap → BYML → Yaz0 pipeline over many
files in parallel, backs up each original, and collects per-file failures.

4. Ledger, a Bolt-backed history of runs used to skip files we already wrote.

# Technical Details

**New ids.**
The new id of an object is the CRC-32 (IEEE) of its canonical encoding:
msgpack, map keys in ascending order, each scalar written at its own width
(an int32 7 and a uint32 7 encode differently). Ids are computed for all
objects before anything is modified, so the result depends only on the
object's content and never on its position or on other objects.

**Own HashId.**
A remapped object's own HashId is rewritten as well, so it agrees with the
links pointing at it. Remapper.KeepOwnID disables this.

**Duplicates.**
If several objects in one document share a foreign HashId, the first one
determines the new id and all of them receive it.

**Failures.**
Every per-file error is a *FileError naming the path and the Stage that failed.
A file is only written after the whole pipeline succeeded and its backup
(path + BackupExt) holds the content about to be replaced. A backup that holds
something else, and that the ledger cannot vouch for, is renamed to the next
free backup.N first. Writes go to a
temporary file in the same directory which is then renamed over the target.

## Ledger layout

**runs**: key is the big-endian start time in nanoseconds followed by the run
id; value is a msgpack RunRecord. Iterating backwards yields newest first.

**run_ids**: run id → key in runs.

**files**: path → latest msgpack FileRecord.

**run_files/<run id>**: path → FileRecord for that run.
*/
package hypostasis
