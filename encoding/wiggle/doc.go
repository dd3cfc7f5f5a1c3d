/*Package wiggle reads and writes wiggle tracks.  See
  https://genome.ucsc.edu/goldenPath/help/wiggle.html.  Briefly, a wiggle
  track holds per-position numeric values grouped into regions
  (chromosomes), in one of two encodings:

    track type=wiggle_0 name="example"
    variableStep chrom=chr1 span=2
    100 4.5
    200 3
    fixedStep chrom=chr2 start=50 step=10
    7
    8

  Reading a track yields (region, position, value) items through a Walker.
  Tracks opened from a file can be indexed: the index records the byte
  offsets of each region and summary statistics, and lets Walk visit
  regions in sorted order by seeking instead of rescanning.  Indices are
  cached by a Store and persisted next to the track with IndexSuffix
  appended to its name.

  None of the types in this package are safe for concurrent use, except
  Store.
*/
package wiggle
