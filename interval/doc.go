/*Package interval converts between wiggle tracks and BED intervals.
  Coverage reduces a walk to the runs of consecutive positions it holds, and
  WriteBED emits them as a BED track.  ReadRegions goes the other way,
  loading a BED file (typically a genome definition) as per-region ranges
  for gap filling and plotting.
  Positions are 1-based and inclusive throughout; BED coordinates are
  converted at the boundary.
*/
package interval
