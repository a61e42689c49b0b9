// Package register loads building block registers and resolves their items.
//
// A register is a published document listing building block summaries plus
// the URLs of other registers it imports. [Load] fetches a register and,
// recursively, every register it imports. Each distinct URL is fetched once
// per call, so diamonds and cycles are safe. Every loaded [Register] carries
// its transitive imports as a flattened, de-duplicated list in first-seen
// order.
//
// # Lookups
//
// [Register.Summary] searches the register itself and then its imports in
// order. [Register.Full] materializes the full record of an item from its
// "json-full" documentation link and memoizes it in the owning register,
// so repeated calls return the same *[BuildingBlock].
//
// # Resources
//
// Schemas, JSON-LD contexts and other documents referenced by summaries are
// fetched lazily through [Register.Resolve] and memoized per register for the
// lifetime of the process. Concurrent lookups of the same URL share a single
// fetch.
//
// # Document format
//
// Keys in register and item documents are camelCase and are normalized with
// [ToSnakeCase] before decoding. Unknown keys are ignored; unknown status,
// item class or step stage values fail the load with an INVALID_ENUM error.
package register
