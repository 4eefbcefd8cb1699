/*
Package byml reads and writes BYML (binary YAML) documents, the structured
data format used for map units and other game parameter files.

Values are plain Go values: nil, bool, int32, uint32, int64, uint64, float32,
float64, string, []any and *Map. See KindOf.

# Binary layout

**Header** (16 bytes):
 1. Magic: "BY" for big-endian files, "YB" for little-endian ones.
 2. Version (u16), 2 through 7 are accepted.
 3. Hash key table offset (u32), 0 if the document has no hash keys.
 4. String table offset (u32), 0 if the document has no string values.
 5. Root node offset (u32), 0 for an empty document.

**Nodes** start with a type byte followed by a u24 entry count.

  - String table (0xC2): count+1 u32 offsets relative to the node, then
    NUL-terminated strings. The last offset marks the end of the data.
  - Array (0xC0): count type bytes, padding to 4, then count u32 value words.
  - Hash (0xC1): count 8-byte entries: u24 key index, type byte, u32 value
    word. Entries are sorted by key index, and the key table is sorted, so a
    hash can be binary-searched.

**Value words**. Strings (0xA0) hold a string table index; bool (0xD0), int
(0xD1), float (0xD2) and uint (0xD3) are stored inline; null (0xFF) is zero.
Containers and 64-bit values (int64 0xD4, uint64 0xD5, double 0xD6) hold an
absolute offset to the node or the 8-byte word.

Every multi-byte field, including u24 counts and key indices, follows the byte
order announced by the magic.
*/
package byml
