// Package message parses and serializes HDF5 object header messages.
//
// An object header describes a group, dataset, or committed datatype as
// a sequence of typed messages. [Parse] decodes one message from its
// raw bytes; the resulting [Message] is type-asserted based on Type().
// Unrecognized types come back as [Unknown] so newer files still parse.
//
// Implemented message types: [Dataspace] (0x0001), [Datatype] (0x0003),
// fill value (0x0005), [Link] (0x0006), [DataLayout] (0x0008),
// [FilterPipeline] (0x000B), [Attribute] (0x000C), [Continuation]
// (0x0010), and [SymbolTable] (0x0011).
//
// [Datatype] covers the fixed-point, floating-point, string, bitfield,
// opaque, compound, reference, enum, variable-length, and array classes,
// including the property blocks that carry compound member layouts and
// enum member names and values. [DataLayout] distinguishes the compact,
// contiguous, and chunked storage classes.
//
// The Serialize* functions produce the byte form of each message for
// the write path, which embeds them in freshly built object headers.
package message
